package sqlinline

const QInsertQueueItem = `--sql 5e8e9590-6605-4520-a45e-8dc3e3e358af
insert into video_queue (user_id, prompt, voice, duration_seconds, position)
values ($1, $2, $3, $4, coalesce((select max(position) + 1 from video_queue where user_id = $1), 1))
returning id, position, created_at;
`

const QSelectQueueByUser = `--sql 3dc12edc-142e-403f-8e45-3c28436b12fd
select id, user_id, prompt, voice, duration_seconds, position, created_at
from video_queue
where user_id = $1
order by position asc;
`

const QDeleteQueueItem = `--sql db05b46c-5439-45d2-a70d-6e940dfbc174
delete from video_queue
where id = $1 and user_id = $2;
`
