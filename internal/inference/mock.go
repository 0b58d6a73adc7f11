package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Mock is a deterministic offline backend for local runs.
// Frames are always "seen" as ObjectName; text requests asking for a prompt
// get a fixed question and every other text request gets Reply.
type Mock struct {
	ObjectName string
	Reply      string
}

// mockIdentity is the reply layout for frame requests.
type mockIdentity struct {
	ObjectName string `json:"objectName"`
}

// NewMock creates a mock backend that answers NO to yes/no questions.
func NewMock(objectName string) *Mock {
	return &Mock{
		ObjectName: objectName,
		Reply:      "NO",
	}
}

// Generate implements Backend.
func (m *Mock) Generate(ctx context.Context, req *Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if req == nil {
		return "", errRequestRequired
	}

	switch {
	case req.Image != nil:
		payload, err := json.Marshal(mockIdentity{ObjectName: m.ObjectName})
		if err != nil {
			return "", fmt.Errorf("encode mock identity: %w", err)
		}

		return "```json\n" + string(payload) + "\n```", nil
	case strings.Contains(req.Instruction, "Create a prompt"):
		return "Please type the model number and purchase date printed on the label.", nil
	default:
		return m.Reply, nil
	}
}
