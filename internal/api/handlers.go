package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/food-health-score-server/internal/domain"
	"github.com/food-health-score-server/internal/middleware"
	"github.com/food-health-score-server/internal/service"
)

const (
	streamReadLimit   = 1 << 20
	streamIdleTimeout = 5 * time.Minute
)

// ScoreResponse is the body of a successful score request.
type ScoreResponse struct {
	RequestID string              `json:"request_id"`
	Cached    bool                `json:"cached"`
	Score     *domain.HealthScore `json:"score"`
}

// DietaryCheckRequest is the body of POST /api/v1/dietary/check.
type DietaryCheckRequest struct {
	Ingredients  []string `json:"ingredients" binding:"required"`
	Restrictions []string `json:"restrictions"`
}

// DietaryCheckResponse lists the violated restrictions.
type DietaryCheckResponse struct {
	RequestID  string                     `json:"request_id"`
	Compliant  bool                       `json:"compliant"`
	Violations []service.DietaryViolation `json:"violations"`
}

// StreamMessage is one websocket reply frame.
type StreamMessage struct {
	Seq    int                  `json:"seq"`
	Cached bool                 `json:"cached,omitempty"`
	Score  *domain.HealthScore  `json:"score,omitempty"`
	Error  *domain.ServiceError `json:"error,omitempty"`
}

func requestID(c *gin.Context) string {
	return c.GetString(middleware.CorrelationIDKey)
}

// writeError maps an error onto a service error response.
func (s *Server) writeError(c *gin.Context, err error) {
	status, svcErr := toServiceError(err, requestID(c))
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("correlation_id", svcErr.RequestID).Error("Request failed")
	}
	c.AbortWithStatusJSON(status, svcErr)
}

func toServiceError(err error, id string) (int, *domain.ServiceError) {
	var verr *domain.ValidationError
	var svcErr *domain.ServiceError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, domain.NewServiceError(domain.ErrValidation, verr.Error(), verr.Field, id)
	case errors.As(err, &svcErr):
		svcErr.RequestID = id
		return http.StatusBadRequest, svcErr
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, domain.NewServiceError(domain.ErrInternalServer, "Request timeout", "", id)
	default:
		return http.StatusInternalServerError, domain.NewServiceError(domain.ErrInternalServer, "Internal server error", "", id)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	deps := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	scorer := s.service.Scorer()
	c.JSON(code, gin.H{
		"status":              status,
		"timestamp":           time.Now().UTC(),
		"uptime":              time.Since(s.startedAt).Round(time.Second).String(),
		"algorithm_version":   domain.AlgorithmVersion,
		"threshold_set_id":    scorer.ThresholdSetID(),
		"additive_lexicon_id": scorer.AdditiveLexiconID(),
		"dependencies":        deps,
	})
}

// handleScore scores one product
func (s *Server) handleScore(c *gin.Context) {
	var req domain.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewServiceError(
			domain.ErrInvalidInput, "Invalid request body", err.Error(), requestID(c)))
		return
	}

	score, cached, err := s.service.Score(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ScoreResponse{
		RequestID: requestID(c),
		Cached:    cached,
		Score:     score,
	})
}

// handleDietaryCheck checks an ingredient list against restrictions
func (s *Server) handleDietaryCheck(c *gin.Context) {
	var req DietaryCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewServiceError(
			domain.ErrInvalidInput, "Invalid request body", err.Error(), requestID(c)))
		return
	}

	violations, err := s.service.CheckDietary(req.Ingredients, req.Restrictions)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if violations == nil {
		violations = []service.DietaryViolation{}
	}

	c.JSON(http.StatusOK, DietaryCheckResponse{
		RequestID:  requestID(c),
		Compliant:  len(violations) == 0,
		Violations: violations,
	})
}

// handlePercentile answers where a score sits within a category
func (s *Server) handlePercentile(c *gin.Context) {
	if s.percentiles == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, domain.NewServiceError(
			domain.ErrInvalidInput, "Percentile tracking is disabled", "", requestID(c)))
		return
	}

	score, err := strconv.Atoi(c.Query("score"))
	if err != nil || score < 0 || score > 100 {
		s.writeError(c, domain.NewValidationError("score", "must be an integer between 0 and 100", c.Query("score")))
		return
	}

	lookup, err := s.percentiles.Lookup(c.Request.Context(), score, c.Param("category"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, domain.NewServiceError(
			domain.ErrStorage, "Percentile store unavailable", err.Error(), requestID(c)))
		return
	}

	c.JSON(http.StatusOK, lookup)
}

// handleStream upgrades to a websocket. Each text frame carries a score
// request and is answered by one StreamMessage, in order.
func (s *Server) handleStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(streamReadLimit)
	s.serveStream(c.Request.Context(), conn, requestID(c))
}

// streamConn is the part of a websocket connection the scan stream uses.
type streamConn interface {
	SetReadDeadline(t time.Time) error
	ReadMessage() (int, []byte, error)
	WriteJSON(v interface{}) error
}

// serveStream answers one StreamMessage per inbound frame until a read or
// write on conn fails.
func (s *Server) serveStream(ctx context.Context, conn streamConn, id string) {
	log := s.logger.WithField("correlation_id", id)
	log.Debug("Scan stream opened")

	for seq := 1; ; seq++ {
		if err := conn.SetReadDeadline(time.Now().Add(streamIdleTimeout)); err != nil {
			log.WithError(err).Warn("Failed to set scan stream read deadline")
			return
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("Scan stream closed unexpectedly")
			}
			return
		}

		msg := StreamMessage{Seq: seq}
		var req domain.ScoreRequest
		switch {
		case msgType != websocket.TextMessage:
			msg.Error = domain.NewServiceError(domain.ErrInvalidInput, "Expected a text frame", "", id)
		case json.Unmarshal(data, &req) != nil:
			msg.Error = domain.NewServiceError(domain.ErrInvalidInput, "Invalid request frame", "", id)
		default:
			score, cached, err := s.service.Score(ctx, req)
			if err != nil {
				_, msg.Error = toServiceError(err, id)
			} else {
				msg.Score = score
				msg.Cached = cached
			}
		}

		if err := conn.WriteJSON(msg); err != nil {
			log.WithError(err).Debug("Scan stream write failed")
			return
		}
	}
}
