package mcpresolver

import "encoding/json"

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      uint64 `json:"id"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      uint64          `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) callerError() *Error {
	if e == nil {
		return nil
	}
	return &Error{Code: e.Code, Message: e.Message}
}

type toolsCallResult struct {
	Content []contentItem `json:"content"`
	IsError bool          `json:"isError"`
}

type contentItem struct {
	Type     string  `json:"type"`
	Text     *string `json:"text"`
	MimeType *string `json:"mimeType"`
}

type toolsListResult struct {
	Tools []ToolInfo `json:"tools"`
}

func normalizeToolResult(result toolsCallResult) (CallResponse, error) {
	if len(result.Content) == 0 {
		return CallResponse{Result: json.RawMessage(`""`)}, nil
	}
	item := result.Content[0]
	text := ""
	if item.Text != nil {
		text = *item.Text
	}
	if json.Valid([]byte(text)) {
		raw := json.RawMessage(text)
		resp := CallResponse{Result: raw}
		if item.MimeType != nil && *item.MimeType == "application/json" {
			resp.Structured = raw
		}
		return resp, nil
	}
	marshaled, err := json.Marshal(text)
	if err != nil {
		return CallResponse{}, err
	}
	return CallResponse{Result: marshaled}, nil
}
