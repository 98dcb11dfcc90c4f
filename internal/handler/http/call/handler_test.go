package call

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"studycircle-backend/internal/domain"
	"studycircle-backend/internal/repository/memory"
	callService "studycircle-backend/internal/service/call"
	"studycircle-backend/internal/service/post"
	"studycircle-backend/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitDefault()
}

// stubPostRepo backs the summary-post flow; only Save is exercised.
type stubPostRepo struct {
	saved   []*domain.Post
	saveErr error
}

func (r *stubPostRepo) Save(p *domain.Post) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, p)
	return nil
}

func (r *stubPostRepo) GetByID(uuid.UUID, int, uuid.UUID) (*domain.Post, error) {
	return nil, nil
}

func (r *stubPostRepo) GetByCircle(uuid.UUID, int, int, []byte) ([]*domain.Post, []byte, error) {
	return nil, nil, nil
}

func (r *stubPostRepo) GetRecentByCircle(uuid.UUID, int, int) ([]*domain.Post, error) {
	return nil, nil
}

func (r *stubPostRepo) GetByAuthor(uuid.UUID, int) ([]*domain.Post, error) {
	return nil, nil
}

func (r *stubPostRepo) UpdateContent(*domain.Post, string) error { return nil }
func (r *stubPostRepo) Delete(*domain.Post) error                { return nil }

func endCallRequest(t *testing.T, h *Handler, callID, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/v1/calls/"+callID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: callID.String()}}
	c.Set("user_id", userID)

	h.EndCall(c)
	return w
}

func TestEndCallPostsSummary(t *testing.T) {
	repo := &stubPostRepo{}
	callSvc := callService.NewService(memory.NewCallDirectory(), nil, nil, nil)
	h := NewHandler(callSvc, nil, post.NewService(repo))

	adminID := uuid.New()
	circleID := uuid.New()
	started, err := callSvc.StartCall(context.Background(), adminID, circleID)
	require.NoError(t, err)

	w := endCallRequest(t, h, started.CallID, adminID)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, circleID, repo.saved[0].CircleID)
	assert.Equal(t, adminID, repo.saved[0].AuthorID)
	assert.Contains(t, repo.saved[0].Content, "ended after 1 participants")
}

func TestEndCallSummaryFailureIsLogged(t *testing.T) {
	repo := &stubPostRepo{saveErr: assert.AnError}
	callSvc := callService.NewService(memory.NewCallDirectory(), nil, nil, nil)
	h := NewHandler(callSvc, nil, post.NewService(repo))

	adminID := uuid.New()
	started, err := callSvc.StartCall(context.Background(), adminID, uuid.New())
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	defer func() { logger.Log = prev }()

	w := endCallRequest(t, h, started.CallID, adminID)

	// The call is torn down regardless of the summary post
	assert.Equal(t, http.StatusOK, w.Code)
	_, err = callSvc.GetCallByID(context.Background(), started.CallID)
	assert.Error(t, err)

	warned := logs.FilterMessage("failed to post call summary")
	require.Equal(t, 1, warned.Len())
	assert.Equal(t, started.CallID.String(), warned.All()[0].ContextMap()["call_id"])
}
