// Package azure implements port.ReceiptExtractor against the Azure Document
// Intelligence REST API (prebuilt-receipt model).
package azure

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"receiptdesk/internal/config"
	"receiptdesk/internal/extract"
	"receiptdesk/internal/port"
)

const apiVersion = "2024-11-30"

// ErrNoReceiptFound is the message recorded when the service answers but
// recognizes no receipt in the document.
const ErrNoReceiptFound = "Document Intelligence could not identify a receipt in the uploaded image."

// Extractor calls Document Intelligence and classifies field confidences.
type Extractor struct {
	endpoint     string
	apiKey       string
	model        string
	timeout      time.Duration
	pollInterval time.Duration
	client       *http.Client
}

// NewExtractor creates a Document Intelligence extractor from config.
func NewExtractor(cfg *config.ExtractorConfig) *Extractor {
	model := cfg.Model
	if model == "" {
		model = "prebuilt-receipt"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	pollInterval := time.Duration(cfg.PollIntervalSecs) * time.Second
	if pollInterval == 0 {
		pollInterval = 2 * time.Second
	}
	return &Extractor{
		endpoint:     cfg.Endpoint,
		apiKey:       cfg.APIKey,
		model:        model,
		timeout:      timeout,
		pollInterval: pollInterval,
		client:       &http.Client{Timeout: timeout},
	}
}

// NewExtractorWithPollInterval creates an extractor with an explicit poll
// interval (for testing against local endpoints).
func NewExtractorWithPollInterval(cfg *config.ExtractorConfig, interval time.Duration) *Extractor {
	e := NewExtractor(cfg)
	e.pollInterval = interval
	return e
}

// analyzeField models one field of the analyze result.
type analyzeField struct {
	Type          string   `json:"type"`
	ValueString   string   `json:"valueString"`
	ValueDate     string   `json:"valueDate"`
	ValueCurrency *struct {
		Amount         float64 `json:"amount"`
		CurrencyCode   string  `json:"currencyCode"`
		CurrencySymbol string  `json:"currencySymbol"`
	} `json:"valueCurrency"`
	Confidence *float64 `json:"confidence"`
}

// operationResponse models the polled analyze operation.
type operationResponse struct {
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	AnalyzeResult *struct {
		Documents []struct {
			Fields map[string]analyzeField `json:"fields"`
		} `json:"documents"`
	} `json:"analyzeResult"`
}

// Extract submits the document for analysis, polls the operation to
// completion and classifies the extracted fields against the confidence
// threshold.
func (e *Extractor) Extract(ctx context.Context, content []byte) (*port.ExtractionResult, error) {
	// The client timeout bounds each request; this deadline bounds the whole
	// submit-and-poll exchange so an operation stuck in "running" cannot
	// poll forever.
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	opURL, err := e.submit(ctx, content)
	if err != nil {
		return nil, err
	}

	op, err := e.poll(ctx, opURL)
	if err != nil {
		return nil, err
	}

	if op.AnalyzeResult == nil || len(op.AnalyzeResult.Documents) == 0 {
		return &port.ExtractionResult{
			Success:      false,
			ErrorMessage: ErrNoReceiptFound,
		}, nil
	}

	return classify(op.AnalyzeResult.Documents[0].Fields), nil
}

func (e *Extractor) submit(ctx context.Context, content []byte) (string, error) {
	reqBody, err := json.Marshal(map[string]string{
		"base64Source": base64.StdEncoding.EncodeToString(content),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s",
		e.endpoint, e.model, apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("creating analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling document intelligence: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading analyze response: %w", err)
	}

	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("document intelligence analyze error (status %d): %s",
			resp.StatusCode, string(respBody))
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("analyze response missing Operation-Location header")
	}
	return opURL, nil
}

func (e *Extractor) poll(ctx context.Context, opURL string) (*operationResponse, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating poll request: %w", err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", e.apiKey)

		resp, err := e.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("polling document intelligence: %w", err)
		}
		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading poll response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("document intelligence poll error (status %d): %s",
				resp.StatusCode, string(respBody))
		}

		var op operationResponse
		if err := json.Unmarshal(respBody, &op); err != nil {
			return nil, fmt.Errorf("unmarshaling poll response: %w", err)
		}

		switch op.Status {
		case "succeeded":
			return &op, nil
		case "failed":
			msg := "analyze operation failed"
			if op.Error != nil {
				msg = op.Error.Message
			}
			return nil, fmt.Errorf("document intelligence: %s", msg)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}
}

// classify copies field values and confidences into the result and applies
// the shared needs-review rule to merchant, total and date. Currency rides
// along with the total and never triggers review on its own.
func classify(fields map[string]analyzeField) *port.ExtractionResult {
	result := &port.ExtractionResult{Success: true}

	merchantPresent := false
	if f, ok := fields["MerchantName"]; ok && f.Type == "string" {
		merchantPresent = true
		result.MerchantName = &f.ValueString
		result.MerchantNameConfidence = confidenceOf(f)
	}

	totalPresent := false
	if f, ok := fields["Total"]; ok && f.Type == "currency" && f.ValueCurrency != nil {
		totalPresent = true
		amount := f.ValueCurrency.Amount
		result.TotalAmount = &amount
		result.TotalAmountConfidence = confidenceOf(f)

		currency := f.ValueCurrency.CurrencyCode
		if currency == "" {
			currency = f.ValueCurrency.CurrencySymbol
		}
		if currency != "" {
			result.Currency = &currency
		}
	}

	datePresent := false
	if f, ok := fields["TransactionDate"]; ok && f.Type == "date" {
		if date, err := time.Parse("2006-01-02", f.ValueDate); err == nil {
			datePresent = true
			result.TransactionDate = &date
			result.TransactionDateConfidence = confidenceOf(f)
		}
	}

	result.NeedsReview = extract.FieldNeedsReview(merchantPresent, result.MerchantNameConfidence) ||
		extract.FieldNeedsReview(totalPresent, result.TotalAmountConfidence) ||
		extract.FieldNeedsReview(datePresent, result.TransactionDateConfidence)

	return result
}

func confidenceOf(f analyzeField) float64 {
	if f.Confidence == nil {
		return 0
	}
	return *f.Confidence
}
