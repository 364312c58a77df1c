package models

// FileEvent records a single file-save notification pushed by the editor
// extension. Timestamps are producer-supplied strings and stored verbatim;
// they are never parsed as real times.
type FileEvent struct {
	ID        int64  `json:"id"`
	FileName  string `json:"fileName"`
	Timestamp string `json:"timestamp"`
}

// TestStatusRecord is one test-run report from a user's workspace. The six
// document fields are opaque nested JSON trees; the server stores them as
// serialized text and restores them on read without validating their
// internal shape.
type TestStatusRecord struct {
	ID             int64    `json:"id"`
	User           string   `json:"user"`
	Timestamp      string   `json:"timestamp"`
	TestStatus     Document `json:"testStatus"`
	ProjectInfo    Document `json:"projectInfo"`
	GitInfo        Document `json:"gitInfo"`
	TestRunnerInfo Document `json:"testRunnerInfo"`
	Environment    Document `json:"environment"`
	Execution      Document `json:"execution"`
}
