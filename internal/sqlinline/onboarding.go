package sqlinline

const QSelectOnboarding = `--sql 1a8be5ee-859f-4adf-9545-ae3c94801ab4
select user_id, step, completed, completed_at, updated_at
from user_onboarding
where user_id = $1;
`

const QUpsertOnboarding = `--sql 855751e4-1d64-4bfd-af99-309d6d9975d5
insert into user_onboarding (user_id, step, completed, completed_at, updated_at)
values ($1, $2, $3, case when $3 then now() else null end, now())
on conflict (user_id) do update
set step = excluded.step,
    completed = excluded.completed,
    completed_at = coalesce(user_onboarding.completed_at, excluded.completed_at),
    updated_at = now();
`
