// Copyright 2026 Tunera Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tunerix/tunera/internal/engine/repo"
	"github.com/tunerix/tunera/internal/engine/service"
	"github.com/tunerix/tunera/internal/pkg/export"
	"github.com/tunerix/tunera/internal/pkg/validate"
	"github.com/tunerix/tunera/pkg/http"
)

func (rt *Router) jobRouter(r fiber.Router) {
	jobs := r.Group("/jobs")
	{
		jobs.Post("/", rt.submitJob)
		jobs.Get("/:jobId/status", rt.getJobStatus)
		jobs.Get("/:jobId/events", rt.listJobEvents)
		jobs.Get("/:jobId/events/export", rt.exportJobEvents)
		jobs.Get("/:jobId/result", rt.getJobResult)
		jobs.Post("/:jobId/cancel", rt.cancelJob)
	}
}

func (rt *Router) submitJob(c *fiber.Ctx) error {
	var req validate.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	ack, err := rt.jobService.Submit(&req)
	if err != nil {
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			return http.WithRepErrMsg(c, http.BadRequest.Code, verr.Reason, c.Path())
		}
		if errors.Is(err, service.ErrDuplicateJobID) {
			return http.WithRepErrMsg(c, http.BadRequest.Code, err.Error(), c.Path())
		}
		return http.WithRepErrMsg(c, http.Failed.Code, err.Error(), c.Path())
	}
	return http.WithRepDetail(c, ack)
}

func (rt *Router) getJobStatus(c *fiber.Ctx) error {
	jobID := strings.TrimSpace(c.Params("jobId"))
	if jobID == "" {
		return http.WithRepErrMsg(c, http.BadRequest.Code, "job id is required", c.Path())
	}

	doc, err := rt.jobService.Status(jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return http.WithRepErrMsg(c, http.NotFound.Code, http.NotFound.Msg, c.Path())
		}
		return http.WithRepErrMsg(c, http.Failed.Code, err.Error(), c.Path())
	}
	return http.WithRepDetail(c, doc)
}

func (rt *Router) listJobEvents(c *fiber.Ctx) error {
	jobID := strings.TrimSpace(c.Params("jobId"))
	if jobID == "" {
		return http.WithRepErrMsg(c, http.BadRequest.Code, "job id is required", c.Path())
	}

	q := repo.EventQuery{
		EventType: c.Query("eventType"),
		Keyword:   c.Query("keyword"),
		PageSize:  rt.cfg.Http.QueryInt(c, "pageSize"),
		PageNo:    rt.cfg.Http.QueryInt(c, "pageNo"),
	}
	page, err := rt.jobService.Events(jobID, q)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return http.WithRepErrMsg(c, http.NotFound.Code, http.NotFound.Msg, c.Path())
		}
		return http.WithRepErrMsg(c, http.Failed.Code, err.Error(), c.Path())
	}
	return http.WithRepDetail(c, page)
}

func (rt *Router) exportJobEvents(c *fiber.Ctx) error {
	jobID := strings.TrimSpace(c.Params("jobId"))
	if jobID == "" {
		return http.WithRepErrMsg(c, http.BadRequest.Code, "job id is required", c.Path())
	}

	format := c.Query("format", export.FormatJSON)
	filename, contentType, body, err := rt.jobService.Export(jobID, c.Query("eventType"), format)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return http.WithRepErrMsg(c, http.NotFound.Code, http.NotFound.Msg, c.Path())
		}
		return http.WithRepErrMsg(c, http.BadRequest.Code, err.Error(), c.Path())
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(body)
}

func (rt *Router) getJobResult(c *fiber.Ctx) error {
	jobID := strings.TrimSpace(c.Params("jobId"))
	if jobID == "" {
		return http.WithRepErrMsg(c, http.BadRequest.Code, "job id is required", c.Path())
	}

	res, err := rt.jobService.Result(jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return http.WithRepErrMsg(c, http.NotFound.Code, http.NotFound.Msg, c.Path())
		}
		return http.WithRepErrMsg(c, http.Failed.Code, err.Error(), c.Path())
	}
	return http.WithRepDetail(c, res)
}

func (rt *Router) cancelJob(c *fiber.Ctx) error {
	jobID := strings.TrimSpace(c.Params("jobId"))
	if jobID == "" {
		return http.WithRepErrMsg(c, http.BadRequest.Code, "job id is required", c.Path())
	}

	if err := rt.jobService.Cancel(jobID); err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return http.WithRepErrMsg(c, http.NotFound.Code, http.NotFound.Msg, c.Path())
		}
		return http.WithRepErrMsg(c, http.BadRequest.Code, err.Error(), c.Path())
	}
	return http.WithRepMsg(c, "cancellation requested", fiber.Map{"job_id": jobID})
}
