package httpapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/verte-zerg/shottrack/internal/export"
	"github.com/verte-zerg/shottrack/internal/model"
	"github.com/verte-zerg/shottrack/internal/state"
	"github.com/verte-zerg/shottrack/internal/stats"
)

type healthResponse struct {
	Status string `json:"status"`
	Shots  int    `json:"shots"`
}

type importResponse struct {
	Shots            int `json:"shots"`
	CustomParameters int `json:"customParameters"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Shots: len(s.state.Shots())})
}

func (s *Server) listShots(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.state.Shots())
}

func (s *Server) addShot(w http.ResponseWriter, r *http.Request) {
	var in state.ShotInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	shot, err := s.state.AddShot(in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, shot)
}

func (s *Server) deleteShot(w http.ResponseWriter, r *http.Request) {
	id := model.ID(r.PathValue("id"))
	if !s.state.DeleteShot(id) {
		s.writeError(w, errors.Wrapf(state.ErrNotFound, "shot %s", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearShots(w http.ResponseWriter, _ *http.Request) {
	s.state.ClearShots()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listParameters(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.state.Parameters())
}

func (s *Server) addParameter(w http.ResponseWriter, r *http.Request) {
	var in state.ParameterInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.state.AddParameter(in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateParameter(w http.ResponseWriter, r *http.Request) {
	var in state.ParameterInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.state.UpdateParameter(model.ID(r.PathValue("id")), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteParameter(w http.ResponseWriter, r *http.Request) {
	id := model.ID(r.PathValue("id"))
	if !s.state.DeleteParameter(id) {
		s.writeError(w, errors.Wrapf(state.ErrNotFound, "parameter %s", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// summary serves the aggregation, optionally narrowed by ?since=YYYY-MM-DD
// and ?value=2|3.
func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	report := stats.BuildReport(s.state, s.state.Table(), filter, 0)
	s.writeJSON(w, http.StatusOK, report.Summary)
}

func (s *Server) exportCSV(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	snapshot := s.state.Export(now)
	summary := stats.Aggregate(snapshot.Shots, snapshot.CustomParameters, s.state.Table())

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, snapshot.Shots, snapshot.CustomParameters, summary, export.Options{
		Quoting: s.quoting,
		Table:   s.state.Table(),
	}); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CSVFilename(now)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Warn("failed to write csv")
	}
}

func (s *Server) exportShotsCSV(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteShotsCSV(&buf, s.state.Shots(), s.state.Parameters(), export.Options{Quoting: s.quoting}); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.ShotsCSVFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Warn("failed to write csv")
	}
}

func (s *Server) exportBackup(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	data, err := export.EncodeBackup(s.state.Export(now))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.BackupFilename(now)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Warn("failed to write backup")
	}
}

func (s *Server) importBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, badRequest("read body: %v", err))
		return
	}
	if !s.state.Import(data) {
		s.writeError(w, badRequest("backup rejected"))
		return
	}
	s.writeJSON(w, http.StatusOK, importResponse{
		Shots:            len(s.state.Shots()),
		CustomParameters: len(s.state.Parameters()),
	})
}

func parseFilter(r *http.Request) (model.StatsFilter, error) {
	var filter model.StatsFilter
	q := r.URL.Query()
	if since := q.Get("since"); since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return filter, badRequest("invalid since %q", since)
		}
		filter.Since = &parsed
	}
	if value := q.Get("value"); value != "" {
		filter.ShotValue = model.ShotValue(value)
		if !filter.ShotValue.Valid() {
			return filter, badRequest("invalid value %q", value)
		}
	}
	return filter, nil
}
