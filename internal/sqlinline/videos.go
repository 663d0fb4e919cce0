// Package sqlinline holds the SQL statements executed through the
// infra.SQLRunner. Every constant starts with a `--sql <uuid>` marker line;
// the runner logs statements by marker and internal/tools/sqllint enforces
// the convention.
package sqlinline

const QInsertVideo = `--sql 8d30a1d7-bc7f-46ec-9385-4d11cce2ede5
insert into videos (user_id, title, prompt, voice, duration_seconds, status, processing_progress, video_url, thumbnail_url)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
returning id, created_at, updated_at;
`

const QSelectVideoByID = `--sql 2e5ed563-0f46-46ea-bdf0-a2c90e333900
select id, user_id, title, prompt, voice, duration_seconds, status, processing_progress,
       video_url, thumbnail_url, error_message, created_at, updated_at
from videos
where id = $1;
`

const QSelectVideosByUser = `--sql 6540809f-1908-4d6b-b24b-e890e2bfcd6f
select id, user_id, title, prompt, voice, duration_seconds, status, processing_progress,
       video_url, thumbnail_url, error_message, created_at, updated_at
from videos
where user_id = $1
order by created_at desc;
`

const QSelectOngoingVideoByUser = `--sql 5f8289ab-5bdf-4e52-96d9-62f1af845227
select id, user_id, title, prompt, voice, duration_seconds, status, processing_progress,
       video_url, thumbnail_url, error_message, created_at, updated_at
from videos
where user_id = $1 and status = 'processing'
order by updated_at desc
limit 1;
`

const QUpdateVideoStatus = `--sql 4c6a89ec-8df5-498d-a202-4786b6958b15
update videos
set status = $2,
    processing_progress = $3,
    video_url = coalesce(nullif($4, ''), video_url),
    thumbnail_url = coalesce(nullif($5, ''), thumbnail_url),
    error_message = $6,
    updated_at = now()
where id = $1;
`

const QDeleteVideo = `--sql 6e4b81fc-dea9-422b-895c-1e76c97def09
delete from videos
where id = $1 and user_id = $2;
`
