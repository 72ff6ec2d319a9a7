package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	sessionsCreated      atomic.Int64
	uploadsStarted       atomic.Int64
	uploadsCompleted     atomic.Int64
	submissionsTotal     atomic.Int64
	submissionsFailed    atomic.Int64
	configurationsSaved  atomic.Int64
	configurationsLoaded atomic.Int64
)

func IncSessionsCreated()      { sessionsCreated.Add(1) }
func IncUploadsStarted()       { uploadsStarted.Add(1) }
func IncUploadsCompleted()     { uploadsCompleted.Add(1) }
func IncSubmissions()          { submissionsTotal.Add(1) }
func IncSubmissionsFailed()    { submissionsFailed.Add(1) }
func IncConfigurationsSaved()  { configurationsSaved.Add(1) }
func IncConfigurationsLoaded() { configurationsLoaded.Add(1) }

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP studio_sessions_created_total Number of fine-tune sessions created.\n")
	fmt.Fprintf(w, "# TYPE studio_sessions_created_total counter\n")
	fmt.Fprintf(w, "studio_sessions_created_total %d\n", sessionsCreated.Load())

	fmt.Fprintf(w, "# HELP studio_uploads_started_total Number of simulated uploads started.\n")
	fmt.Fprintf(w, "# TYPE studio_uploads_started_total counter\n")
	fmt.Fprintf(w, "studio_uploads_started_total %d\n", uploadsStarted.Load())

	fmt.Fprintf(w, "# HELP studio_uploads_completed_total Number of uploads that reached ready.\n")
	fmt.Fprintf(w, "# TYPE studio_uploads_completed_total counter\n")
	fmt.Fprintf(w, "studio_uploads_completed_total %d\n", uploadsCompleted.Load())

	fmt.Fprintf(w, "# HELP studio_submissions_total Number of fine-tune jobs submitted to the trainer.\n")
	fmt.Fprintf(w, "# TYPE studio_submissions_total counter\n")
	fmt.Fprintf(w, "studio_submissions_total %d\n", submissionsTotal.Load())

	fmt.Fprintf(w, "# HELP studio_submissions_failed_total Number of fine-tune submissions that failed.\n")
	fmt.Fprintf(w, "# TYPE studio_submissions_failed_total counter\n")
	fmt.Fprintf(w, "studio_submissions_failed_total %d\n", submissionsFailed.Load())

	fmt.Fprintf(w, "# HELP studio_configurations_saved_total Number of configurations saved to storage.\n")
	fmt.Fprintf(w, "# TYPE studio_configurations_saved_total counter\n")
	fmt.Fprintf(w, "studio_configurations_saved_total %d\n", configurationsSaved.Load())

	fmt.Fprintf(w, "# HELP studio_configurations_loaded_total Number of configurations loaded into a session.\n")
	fmt.Fprintf(w, "# TYPE studio_configurations_loaded_total counter\n")
	fmt.Fprintf(w, "studio_configurations_loaded_total %d\n", configurationsLoaded.Load())
}
