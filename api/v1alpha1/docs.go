package v1alpha1

// Docs lists the endpoints of the API.
func Docs() ApiDocs {
	return ApiDocs{
		Message: "Pi Calculator API",
		Endpoints: map[string]Endpoint{
			"calculate_pi": {
				Url:         "/calculate_pi?n=<decimal_places>",
				Method:      "GET",
				Description: "Start calculating pi to n decimal places",
				Example:     "/calculate_pi?n=10",
			},
			"check_progress": {
				Url:         "/check_progress?task_id=<task_id>",
				Method:      "GET",
				Description: "Check progress of calculation task",
				Example:     "/check_progress?task_id=5f0c6c1e-9a4e-4b8e-8d7a-3f1e2b6c9d10",
			},
			"create_job": {
				Url:         "/api/v1/jobs",
				Method:      "POST",
				Description: "Start calculating pi, the body is {\"digits\": <decimal_places>}",
				Example:     "/api/v1/jobs",
			},
			"get_job": {
				Url:         "/api/v1/jobs/{id}",
				Method:      "GET",
				Description: "Get the status of a job",
				Example:     "/api/v1/jobs/5f0c6c1e-9a4e-4b8e-8d7a-3f1e2b6c9d10",
			},
			"cancel_job": {
				Url:         "/api/v1/jobs/{id}/cancel",
				Method:      "POST",
				Description: "Cancel a queued or running job",
				Example:     "/api/v1/jobs/5f0c6c1e-9a4e-4b8e-8d7a-3f1e2b6c9d10/cancel",
			},
		},
	}
}
