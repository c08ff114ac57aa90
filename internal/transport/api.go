package transport

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haesookim/incubator-nemo/internal/executor"
	"github.com/haesookim/incubator-nemo/internal/taskgroup"
)

// API is the executor agent's HTTP surface: the server side of Client.
type API struct {
	Address string
	Port    int
	Agent   *Agent
	Router  *chi.Mux
}

func (a *API) StartTaskGroupHandler(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var stg taskgroup.ScheduledTaskGroup
	if err := decoder.Decode(&stg); err != nil {
		log.Printf("[executoragent] error unmarshalling dispatch body: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	a.Agent.AddTaskGroup(stg)

	log.Printf("[executoragent] accepted task group %s", stg.TaskGroup.TaskGroupId)

	w.WriteHeader(http.StatusCreated)
}

func (a *API) GetTaskGroupsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(a.Agent.ListStatuses())
}

func (a *API) StopTaskGroupHandler(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "taskGroupID")

	if !a.Agent.StopTaskGroup(taskgroup.Id(idParam)) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(executor.CollectStats())
}

func (a *API) initRouter() {
	a.Router = chi.NewRouter()
	a.Router.Route("/taskgroups", func(r chi.Router) {
		r.Post("/", a.StartTaskGroupHandler)
		r.Get("/", a.GetTaskGroupsHandler)
		r.Route("/{taskGroupID}", func(r chi.Router) {
			r.Delete("/", a.StopTaskGroupHandler)
		})
	})
	a.Router.Route("/stats", func(r chi.Router) {
		r.Get("/", a.GetStatsHandler)
	})
}

func (a *API) Start() error {
	a.initRouter()
	return http.ListenAndServe(fmt.Sprintf("%s:%d", a.Address, a.Port), a.Router)
}
