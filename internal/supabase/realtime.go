package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The Supabase Go client has no direct Realtime publish; subscribed
	// clients observe the analysis_jobs row changes, which Supabase streams
	// automatically. This hook exists for explicit broadcast later.
	return nil
}

// PublishScanEvent notifies a user's clients about a scan job transition.
func (r *RealtimeClient) PublishScanEvent(userID, jobID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("user:%s:scans", userID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func ScanCompletedPayload(jobID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"job_id": jobID.String(),
		"status": "completed",
	}
}

func ScanFailedPayload(jobID uuid.UUID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"job_id": jobID.String(),
		"status": "failed",
		"error":  errorMsg,
	}
}
