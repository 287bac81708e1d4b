package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"onboarding-backend/config"
	yagptclient "onboarding-backend/lib/ocr/yagpt-client"
	"onboarding-backend/lib/utils/helpers"
	"onboarding-backend/models"
)

// Provider extracts structured identity fields from a scanned document.
// The call is synchronous with a bounded timeout and exactly one retry;
// any failure surfaces ErrExternalServiceUnavailable with no partial state.
type Provider interface {
	Extract(ctx context.Context, documentBytes []byte, kind models.DocumentKind) (map[string]string, error)
}

var Instance Provider

func NewHandler() {
	timeout := time.Duration(config.Conf.OCR.TimeoutInSec) * time.Second
	var gptClient yagptclient.Provider
	if config.Conf.OCR.YandexToken != "" {
		gptClient = yagptclient.NewClient(config.Conf.OCR.YandexToken, config.Conf.OCR.YandexFolder)
	}
	Instance = &impl{
		endpoint: config.Conf.OCR.Endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
		gptClient: gptClient,
	}
}

type impl struct {
	endpoint  string
	client    *http.Client
	gptClient yagptclient.Provider
}

type ocrResponse struct {
	Text   string            `json:"text"`
	Fields map[string]string `json:"fields"`
}

// fields the assembly pipeline knows how to auto-populate
var extractableFields = []string{
	"first_name", "last_name", "date_of_birth", "ssn",
	"document_title", "document_number", "document_expiry", "issuing_authority",
}

func (i impl) Extract(ctx context.Context, documentBytes []byte, kind models.DocumentKind) (map[string]string, error) {
	logger := log.WithField("document_kind", kind)
	if i.endpoint == "" {
		logger.Warn("ocr extraction skipped, service is not configured")
		return map[string]string{}, nil
	}
	resp, err := i.recognize(ctx, documentBytes, kind)
	if err != nil {
		logger.WithError(err).Error("ocr recognition failed")
		return nil, models.ErrExternalServiceUnavailable
	}
	if len(resp.Fields) != 0 {
		return resp.Fields, nil
	}
	if i.gptClient == nil || resp.Text == "" {
		return map[string]string{}, nil
	}
	fields, err := i.structureText(ctx, resp.Text)
	if err != nil {
		logger.WithError(err).Error("ocr field structuring failed")
		return nil, models.ErrExternalServiceUnavailable
	}
	return fields, nil
}

func (i impl) recognize(ctx context.Context, documentBytes []byte, kind models.DocumentKind) (*ocrResponse, error) {
	var lastErr error
	url := fmt.Sprintf("%s/recognize?kind=%s", i.endpoint, kind)
	for attempt := 0; attempt < 2; attempt++ {
		if helpers.IsContextDone(ctx) {
			return nil, ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(documentBytes))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		httpResp, err := i.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if httpResp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("ocr service returned status %d", httpResp.StatusCode)
			continue
		}
		resp := ocrResponse{}
		if err = json.Unmarshal(body, &resp); err != nil {
			lastErr = err
			continue
		}
		return &resp, nil
	}
	return nil, lastErr
}

const structuringPromt = `You are given raw OCR text of an identity document. ` +
	`Return a single JSON object mapping any of these keys you can find to their values: %s. ` +
	`Dates must be YYYY-MM-DD. Omit keys you cannot find. Return only JSON.`

func (i impl) structureText(ctx context.Context, text string) (map[string]string, error) {
	promt := fmt.Sprintf(structuringPromt, strings.Join(extractableFields, ", "))
	answer, err := i.gptClient.GenerateByPromtAndText(ctx, promt, text)
	if err != nil {
		return nil, err
	}
	// the model occasionally wraps the object in a code fence
	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```json")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")
	fields := map[string]string{}
	if err = json.Unmarshal([]byte(strings.TrimSpace(answer)), &fields); err != nil {
		return nil, err
	}
	known := map[string]bool{}
	for _, f := range extractableFields {
		known[f] = true
	}
	for k := range fields {
		if !known[k] {
			delete(fields, k)
		}
	}
	return fields, nil
}
