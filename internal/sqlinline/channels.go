package sqlinline

const QInsertChannel = `--sql a8baec53-b9aa-47e7-a14d-0f7347eeeaf2
insert into user_channels (user_id, name, platform, handle, default_voice)
values ($1, $2, $3, $4, $5)
returning id, created_at, updated_at;
`

const QSelectChannelsByUser = `--sql 43c023f4-75d3-4ab8-a169-a2381ec09934
select id, user_id, name, platform, handle, default_voice, created_at, updated_at
from user_channels
where user_id = $1
order by created_at asc;
`

const QUpdateChannel = `--sql 80eab95e-b219-4ef6-bc56-23bfec336ea1
update user_channels
set name = $3,
    platform = $4,
    handle = $5,
    default_voice = $6,
    updated_at = now()
where id = $1 and user_id = $2;
`

const QDeleteChannel = `--sql fe72832c-1a18-4e40-a163-968889609b55
delete from user_channels
where id = $1 and user_id = $2;
`
