package handlers

import (
	"net/http"

	"github.com/giygas/medicine-shop/interfaces"
	"github.com/giygas/medicine-shop/kvstore"
	"github.com/giygas/medicine-shop/logging"
	"github.com/giygas/medicine-shop/medications"
	"github.com/giygas/medicine-shop/session"
	"github.com/giygas/medicine-shop/symptoms"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// Dependencies are the collaborators the handlers need
type Dependencies struct {
	DataStore     interfaces.DataStore
	Store         kvstore.Store
	Medications   *medications.Service
	Predictor     symptoms.Predictor
	HealthChecker interfaces.HealthChecker
	Locks         *session.Locks
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore   interfaces.DataStore
	store       kvstore.Store
	medications *medications.Service
	predictor   symptoms.Predictor
	health      interfaces.HealthChecker
	locks       *session.Locks
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(deps Dependencies) *HTTPHandlerImpl {
	h := &HTTPHandlerImpl{
		dataStore:   deps.DataStore,
		store:       deps.Store,
		medications: deps.Medications,
		predictor:   deps.Predictor,
		health:      deps.HealthChecker,
		locks:       deps.Locks,
	}
	if h.medications == nil {
		h.medications = medications.NewService(deps.Store)
	}
	if h.predictor == nil {
		h.predictor = symptoms.EchoPredictor{}
	}
	if h.locks == nil {
		h.locks = session.NewLocks()
	}
	return h
}

// sessionID returns the caller's session or answers 500 when the session
// middleware did not run.
func (h *HTTPHandlerImpl) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := session.FromContext(r.Context())
	if !ok {
		logging.Error("Request reached a session handler without a session", "path", r.URL.Path)
		RespondWithError(w, http.StatusInternalServerError, "Session unavailable")
		return "", false
	}
	return id, true
}
