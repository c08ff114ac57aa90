// Package debugapi is a read-only HTTP surface onto the scheduler's
// in-memory state, for operator inspection. It never mutates the
// registry or the pending queue it reports on.
package debugapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haesookim/incubator-nemo/internal/containertype"
	"github.com/haesookim/incubator-nemo/internal/executor"
)

// ExecutorLocator is the subset of containermgr.Manager the debug
// surface needs to snapshot the registry.
type ExecutorLocator interface {
	GetExecutorRepresenterMap() map[executor.Id]executor.Representer
}

// PendingCounter reports the size of the BatchScheduler's pending queue.
type PendingCounter interface {
	PendingCount() int
}

// API serves the debug endpoints.
type API struct {
	Address string
	Locator ExecutorLocator
	Pending PendingCounter
	Router  *chi.Mux
}

// ExecutorView is one executor's registry state, as reported over /executors.
type ExecutorView struct {
	Id                string `json:"id"`
	ContainerType     string `json:"containerType"`
	Capacity          int    `json:"capacity"`
	RunningTaskGroups int    `json:"runningTaskGroups"`
}

func (a *API) GetExecutorsHandler(w http.ResponseWriter, r *http.Request) {
	reps := a.Locator.GetExecutorRepresenterMap()

	views := make([]ExecutorView, 0, len(reps))
	for id, rep := range reps {
		views = append(views, ExecutorView{
			Id:                string(id),
			ContainerType:     rep.ContainerType().String(),
			Capacity:          rep.Capacity(),
			RunningTaskGroups: len(rep.RunningTaskGroups()),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(views)
}

func (a *API) GetQueueHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]int{"pending": a.Pending.PendingCount()})
}

// GetContainerTypesHandler lists the closed set of container types the
// policy dispatches against, for operator reference.
func (a *API) GetContainerTypesHandler(w http.ResponseWriter, r *http.Request) {
	types := []string{
		containertype.Transient.String(),
		containertype.Reserved.String(),
		containertype.Compute.String(),
		containertype.Storage.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(types)
}

func (a *API) initRouter() {
	a.Router = chi.NewRouter()
	a.Router.Get("/executors", a.GetExecutorsHandler)
	a.Router.Get("/queue", a.GetQueueHandler)
	a.Router.Get("/containertypes", a.GetContainerTypesHandler)
}

// Start initializes the router and blocks serving on Address.
func (a *API) Start() error {
	a.initRouter()
	return http.ListenAndServe(a.Address, a.Router)
}
