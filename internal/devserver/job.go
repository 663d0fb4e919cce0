package devserver

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timeline is the scripted progress a job walks through.
var timeline = []struct {
	step     string
	progress int
	message  string
}{
	{"script", 10, "writing script"},
	{"voiceover", 35, "synthesizing voiceover"},
	{"visuals", 60, "rendering visuals"},
	{"assembly", 85, "assembling video"},
	{"finalize", 100, "finalizing"},
}

type genJob struct {
	server  *Server
	videoID string
	taskID  string
	req     generateRequest

	// guarded by server.mu
	status   string
	progress int
	errMsg   string
}

func (j *genJob) snapshot() (status string, progress int, errMsg string) {
	j.server.mu.Lock()
	defer j.server.mu.Unlock()
	return j.status, j.progress, j.errMsg
}

func (j *genJob) set(status string, progress int, errMsg string) {
	j.server.mu.Lock()
	j.status = status
	j.progress = progress
	j.errMsg = errMsg
	j.server.mu.Unlock()
}

// run walks the timeline, broadcasting stream messages and updating the
// polled task state. Prompts containing "fail" abort mid-way so failure
// handling can be exercised end to end.
func (j *genJob) run() {
	for _, st := range timeline {
		time.Sleep(j.server.interval)

		if strings.Contains(strings.ToLower(j.req.Prompt), "fail") && st.progress >= 60 {
			j.set("failed", j.progressNow(), "scripted failure")
			j.broadcast(map[string]any{
				"step":    st.step,
				"message": "generation aborted",
				"error":   "scripted failure",
			})
			return
		}

		completed := st.progress >= 100
		status := "processing"
		if completed {
			status = "completed"
		}
		j.set(status, st.progress, "")
		j.broadcast(map[string]any{
			"step":      st.step,
			"progress":  st.progress,
			"message":   st.message,
			"completed": completed,
		})
	}

	j.writeArtifact()
}

func (j *genJob) progressNow() int {
	j.server.mu.Lock()
	defer j.server.mu.Unlock()
	return j.progress
}

func (j *genJob) writeArtifact() {
	rel := fmt.Sprintf("generated_videos/%s.mp4", j.videoID)
	if j.server.files != nil {
		// Placeholder payload; the real backend writes the rendered file.
		if _, err := j.server.files.Save(rel, []byte("clipforge artifact "+j.videoID)); err != nil {
			j.server.log.Warn().Err(err).Msg("artifact write failed")
			return
		}
	}
	j.server.setArtifact(j.server.staticBase + "/" + rel)
}

func (j *genJob) broadcast(payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	j.server.hub.broadcast(data)
}
