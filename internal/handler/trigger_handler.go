package handler

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"receiptdesk/internal/domain"
	"receiptdesk/internal/port"
	"receiptdesk/internal/service"
)

// TriggerHandler receives storage event notifications for objects landing in
// the quarantine area and hands them to the processor.
type TriggerHandler struct {
	processor        *service.Processor
	stage            port.ObjectStage
	quarantinePrefix string
}

// NewTriggerHandler creates a new TriggerHandler.
func NewTriggerHandler(processor *service.Processor, stage port.ObjectStage, quarantinePrefix string) *TriggerHandler {
	return &TriggerHandler{
		processor:        processor,
		stage:            stage,
		quarantinePrefix: quarantinePrefix,
	}
}

// storageEvent models the subset of an S3 event notification we consume.
type storageEvent struct {
	Records []struct {
		S3 struct {
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// StorageEvent handles POST /internal/v1/storage-events
//
// Always answers 200 to the storage layer: skipped or malformed records are
// an operator concern (logged), not the notifier's. Store and transport
// failures return 500 so the delivery is retried.
func (h *TriggerHandler) StorageEvent(c *gin.Context) {
	var event storageEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		log.Printf("triggerHandler: unparseable storage event: %v", err)
		c.Status(http.StatusOK)
		return
	}

	for _, record := range event.Records {
		// Object keys arrive URL-encoded in S3 event notifications.
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			log.Printf("triggerHandler: undecodable object key %q: %v", record.S3.Object.Key, err)
			continue
		}

		blobName, ok := strings.CutPrefix(key, h.quarantinePrefix+"/")
		if !ok {
			log.Printf("triggerHandler: ignoring object %q outside quarantine area", key)
			continue
		}

		content, err := h.stage.Download(c.Request.Context(), blobName)
		if err != nil {
			// A redelivered event can arrive after the object was already
			// moved out of quarantine; that is a tolerated no-op, not a
			// delivery to retry.
			if errors.Is(err, domain.ErrObjectNotFound) {
				log.Printf("triggerHandler: object %q already gone from quarantine, skipping", blobName)
				continue
			}
			log.Printf("triggerHandler: downloading %q: %v", blobName, err)
			c.Status(http.StatusInternalServerError)
			return
		}

		if err := h.processor.Process(c.Request.Context(), blobName, content); err != nil {
			log.Printf("triggerHandler: processing %q: %v", blobName, err)
			c.Status(http.StatusInternalServerError)
			return
		}
	}

	c.Status(http.StatusOK)
}
