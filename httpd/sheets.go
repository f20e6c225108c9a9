package httpd

import (
	"context"
	"net/http"
	"strings"

	"github.com/sheets-relay/sheets-relay/auth"
	"github.com/sheets-relay/sheets-relay/sheet"
)

func (s *Server) copySheet(w http.ResponseWriter, r *http.Request, credentials auth.Credentials) {
	var body struct {
		SourceSheetID string `json:"sourceSheetId"`
		NewSheetName  string `json:"newSheetName"`
	}

	if err := s.readJSON(w, r, &body); err != nil {
		s.errorResponse(w, r, "Invalid request", err)
		return
	}

	if blank(body.SourceSheetID) {
		s.errorResponse(w, r, "Invalid request", invalid("Missing required field: sourceSheetId"))
		return
	}

	ctx := context.WithoutCancel(r.Context())

	remoteStore, err := s.stores(ctx, credentials.TokenSource())
	if err != nil {
		s.errorResponse(w, r, "Failed to copy spreadsheet", err)
		return
	}

	file, err := remoteStore.Duplicate(ctx, strings.TrimSpace(body.SourceSheetID), strings.TrimSpace(body.NewSheetName))
	if err != nil {
		s.errorResponse(w, r, "Failed to copy spreadsheet", err)
		return
	}

	s.writeJSON(w, envelop{"message": "Spreadsheet copied successfully", "newSheet": file}, http.StatusCreated, nil)
}

func (s *Server) getSheet(w http.ResponseWriter, r *http.Request, credentials auth.Credentials) {
	ctx := context.WithoutCancel(r.Context())

	remoteStore, err := s.stores(ctx, credentials.TokenSource())
	if err != nil {
		s.errorResponse(w, r, "Failed to get spreadsheet", err)
		return
	}

	file, err := remoteStore.GetFile(ctx, r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, r, "Failed to get spreadsheet", err)
		return
	}

	s.writeJSON(w, envelop{"file": file}, http.StatusOK, nil)
}

func (s *Server) getSheetData(w http.ResponseWriter, r *http.Request, credentials auth.Credentials) {
	ctx := context.WithoutCancel(r.Context())
	id := r.PathValue("id")
	area := rangeOf(r)

	reader, err := s.readers(ctx, credentials.TokenSource())
	if err != nil {
		s.errorResponse(w, r, "Failed to read spreadsheet data", err)
		return
	}

	rows, err := reader.ReadRange(ctx, id, area)
	if err != nil {
		s.errorResponse(w, r, "Failed to read spreadsheet data", err)
		return
	}

	s.writeJSON(w, records(id, area, rows), http.StatusOK, nil)
}

// sendToWorkflow forwards a spreadsheet id to the callback in the request, or to the
// configured workflow URL if the request does not name one.
func (s *Server) sendToWorkflow(w http.ResponseWriter, r *http.Request, credentials auth.Credentials) {
	var body struct {
		SpreadsheetID string         `json:"spreadsheetId"`
		WebhookURL    string         `json:"n8nWebhookUrl"`
		Metadata      map[string]any `json:"metadata"`
	}

	if err := s.readJSON(w, r, &body); err != nil {
		s.errorResponse(w, r, "Invalid request", err)
		return
	}

	callback := strings.TrimSpace(body.WebhookURL)
	if callback == "" {
		callback = s.config.Webhook.WorkflowURL
	}

	if blank(body.SpreadsheetID) || blank(callback) {
		s.errorResponse(w, r, "Invalid request", invalid("Missing required fields: spreadsheetId and n8nWebhookUrl"))
		return
	}

	if s.forwarder == nil {
		s.errorResponse(w, r, "Failed to send to n8n", errNoForwarder)
		return
	}

	result, err := s.forwarder.Forward(context.WithoutCancel(r.Context()), strings.TrimSpace(body.SpreadsheetID), callback, body.Metadata)
	if err != nil {
		s.errorResponse(w, r, "Failed to send to n8n", err)
		return
	}

	s.writeJSON(w, envelop{"message": "Spreadsheet ID sent to n8n successfully", "result": result}, http.StatusOK, nil)
}

func rangeOf(r *http.Request) string {
	if area := strings.TrimSpace(r.URL.Query().Get("range")); area != "" {
		return area
	}

	return sheet.DefaultRange
}

func records(id, area string, rows [][]any) envelop {
	data := sheet.ToRecords(rows)

	return envelop{
		"sheetId":  id,
		"range":    area,
		"rowCount": len(data),
		"data":     data,
	}
}
