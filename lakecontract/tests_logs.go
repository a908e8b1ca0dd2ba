package lakecontract

func DoLogTests(t *T) {
	t.Run("start is logged", func(t *T) {
		expected := t.Harness().Config().Service.ExpectedLogLines
		if len(expected) == 0 {
			t.SkipWithReason("no expected log lines configured")
		}
		t.RequireLogLines(expected...)
	})
}
