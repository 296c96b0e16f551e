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

package http

import "github.com/gofiber/fiber/v2"

// Status defines a business response code with its default message.
type Status struct {
	Code int
	Msg  string
}

var (
	Success                       = Status{Code: 0, Msg: "success"}
	Failed                        = Status{Code: 10001, Msg: "request failed"}
	BadRequest                    = Status{Code: 10400, Msg: "bad request"}
	NotFound                      = Status{Code: 10404, Msg: "not found"}
	RequestParameterParsingFailed = Status{Code: 10422, Msg: "request parameter parsing failed"}
)

// Resp is the uniform response envelope.
type Resp struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Path   string `json:"path,omitempty"`
	Detail any    `json:"detail,omitempty"`
}

// WithRepDetail writes a success response carrying detail.
func WithRepDetail(c *fiber.Ctx, detail any) error {
	return c.JSON(Resp{Code: Success.Code, Msg: Success.Msg, Detail: detail})
}

// WithRepMsg writes a success response with a custom message.
func WithRepMsg(c *fiber.Ctx, msg string, detail any) error {
	return c.JSON(Resp{Code: Success.Code, Msg: msg, Detail: detail})
}

// WithRepErrMsg writes an error response with the given code and message.
func WithRepErrMsg(c *fiber.Ctx, code int, msg, path string) error {
	return c.JSON(Resp{Code: code, Msg: msg, Path: path})
}
