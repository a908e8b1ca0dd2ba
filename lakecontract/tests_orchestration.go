package lakecontract

func DoOrchestrationTests(t *T) {
	t.Run("service is running", func(t *T) {
		t.RequireRunning()
	})

	t.Run("service is healthy", func(t *T) {
		t.RequireHealthy()
	})

	t.Run("service is running after restart", func(t *T) {
		t.RestartService()
		t.RequireRunning()
		t.RequireHealthy()
	})
}
