package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/semindex"
)

const (
	payloadDocIDKey   = "_mj_doc_id"
	payloadContentKey = "_mj_content"
	maxErrorBodyBytes = 1024
)

var pointIDNamespaceUUID = uuid.MustParse("7b5c9d8e-44a1-4f3b-9c57-2d1e0a6f4b83")

// Store is a qdrant-backed semindex.Index over one collection of mood
// documents. Point ids are derived deterministically from document ids, so
// re-upserting a document overwrites the prior point.
type Store struct {
	log      *logger.Logger
	cfg      Config
	baseURL  string
	embedder semindex.Embedder
	http     *http.Client
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type qdrantSearchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
	Vector  []float32       `json:"vector"`
}

func NewStore(log *logger.Logger, cfg Config, embedder semindex.Embedder) (*Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	s := &Store{
		log:      log.With("service", "QdrantIndex"),
		cfg:      cfg,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		embedder: embedder,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	if err := s.ensureCollection(context.Background()); err != nil {
		return nil, err
	}

	s.log.Info(
		"Qdrant semantic index ready",
		"url", s.baseURL,
		"collection", cfg.Collection,
		"vector_dim", cfg.VectorDim,
	)
	return s, nil
}

func (s *Store) Upsert(ctx context.Context, doc semindex.Document) error {
	const op = "upsert"
	docID := strings.TrimSpace(doc.ID)
	if docID == "" {
		return opErr(op, OperationErrorValidation, "document id is required", nil)
	}

	vecs, err := s.embedder.Embed(ctx, []string{doc.Content})
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, fmt.Sprintf("embed document %q failed", docID), err)
	}
	vector := vecs[0]
	if s.cfg.VectorDim > 0 && len(vector) != s.cfg.VectorDim {
		return opErr(
			op,
			OperationErrorValidation,
			fmt.Sprintf("document %q dimension mismatch: expected=%d got=%d", docID, s.cfg.VectorDim, len(vector)),
			nil,
		)
	}

	payload := clonePayload(doc.Metadata)
	payload[payloadDocIDKey] = docID
	payload[payloadContentKey] = doc.Content

	req := map[string]any{
		"points": []map[string]any{
			{
				"id":      s.pointID(docID),
				"vector":  vector,
				"payload": payload,
			},
		},
	}
	return s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/points?wait=true"), req, nil)
}

func (s *Store) QuerySimilar(ctx context.Context, text string, k int) ([]semindex.Document, error) {
	const op = "query"
	if k <= 0 {
		k = 3
	}

	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, opErr(op, OperationErrorTransportFailed, "embed query failed", err)
	}
	query := vecs[0]

	// over-fetch with vectors so MMR can trade relevance against redundancy
	req := map[string]any{
		"vector":       query,
		"limit":        semindex.FetchK(k),
		"with_payload": true,
		"with_vector":  true,
	}
	var rawResults []qdrantSearchResultItem
	if err := s.doJSON(
		ctx,
		op,
		http.MethodPost,
		s.collectionPath("/points/search"),
		req,
		&rawResults,
	); err != nil {
		return nil, err
	}

	candidates := make([]semindex.Candidate, 0, len(rawResults))
	for _, item := range rawResults {
		doc, ok := s.decodeDocument(item)
		if !ok {
			continue
		}
		candidates = append(candidates, semindex.Candidate{Doc: doc, Vector: item.Vector})
	}

	return semindex.SelectMMR(query, candidates, k, semindex.DefaultLambda), nil
}

// ensureCollection verifies the collection exists with a compatible vector
// size, creating it when absent.
func (s *Store) ensureCollection(ctx context.Context) error {
	const op = "bootstrap"

	var result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath(""), nil, &result)
	if err == nil {
		size := result.Config.Params.Vectors.Size
		if size != 0 && size != s.cfg.VectorDim {
			return opErr(
				op,
				OperationErrorValidation,
				fmt.Sprintf(
					"qdrant collection %q vector size mismatch: expected=%d actual=%d",
					s.cfg.Collection,
					s.cfg.VectorDim,
					size,
				),
				nil,
			)
		}
		return nil
	}

	var opErrTyped *OperationError
	if !errors.As(err, &opErrTyped) || opErrTyped.StatusCode != http.StatusNotFound {
		return err
	}

	s.log.Info("Qdrant collection missing, creating it", "collection", s.cfg.Collection)
	createReq := map[string]any{
		"vectors": map[string]any{
			"size":     s.cfg.VectorDim,
			"distance": "Cosine",
		},
	}
	return s.doJSON(ctx, op, http.MethodPut, s.collectionPath(""), createReq, nil)
}

func (s *Store) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*maxErrorBodyBytes))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil {
		return nil
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil {
		if strings.TrimSpace(statusObject.Error) != "" {
			return strings.TrimSpace(statusObject.Error)
		}
	}

	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func clonePayload(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *Store) pointID(docID string) string {
	deterministic := uuid.NewSHA1(pointIDNamespaceUUID, []byte(docID))
	return deterministic.String()
}

func (s *Store) collectionPath(suffix string) string {
	path := "/collections/" + s.cfg.Collection
	if strings.TrimSpace(suffix) == "" {
		return path
	}
	return path + suffix
}

func (s *Store) decodeDocument(item qdrantSearchResultItem) (semindex.Document, bool) {
	if len(item.Vector) == 0 {
		return semindex.Document{}, false
	}
	docID, _ := item.Payload[payloadDocIDKey].(string)
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return semindex.Document{}, false
	}
	content, _ := item.Payload[payloadContentKey].(string)

	metadata := make(map[string]any, len(item.Payload))
	for key, value := range item.Payload {
		if key == payloadDocIDKey || key == payloadContentKey {
			continue
		}
		metadata[key] = value
	}
	return semindex.Document{ID: docID, Content: content, Metadata: metadata}, true
}
