package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteReadCleanupTempFile_RoundTrips(t *testing.T) {
	written := WriteTemp("alpha\nbeta")
	fileID := written["file_id"].(string)

	read := ReadLines(fileID, 0, 1)
	assert.Equal(t, []string{"alpha"}, read["lines"])

	cleanup := CleanupTempFile(fileID)
	assert.Equal(t, true, cleanup["removed"])
}

func TestHandleLargeResponse_ProjectsSmallPayload(t *testing.T) {
	result := HandleLargeResponse(context.Background(), `{"answer": "42"}`, map[string]string{"answer": "string"}, "")
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, "direct", result["strategy"])
}

func TestHandleLargeResponse_SpillsLargePayload(t *testing.T) {
	big := `{"answer": "` + strings.Repeat("a", 60*1024) + `"}`
	result := HandleLargeResponse(context.Background(), big, map[string]string{"answer": "string"}, "")
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, "write_temp_read_lines_exec_python", result["strategy"])
}
