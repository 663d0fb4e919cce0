package sqlinline

const QInsertSchedule = `--sql 659e3603-a55e-4856-a5c2-3d04a82837d1
insert into scheduled_videos (user_id, video_id, channel_id, publish_at)
values ($1, $2, $3, $4)
returning id, created_at;
`

const QSelectSchedulesByUser = `--sql 83f9fb6a-8aa4-47fb-8945-ca489d09b05b
select id, user_id, video_id, channel_id, publish_at, created_at
from scheduled_videos
where user_id = $1
order by publish_at asc;
`

const QDeleteSchedule = `--sql 90323d6d-2269-45fe-b736-4218e0a07408
delete from scheduled_videos
where id = $1 and user_id = $2;
`
