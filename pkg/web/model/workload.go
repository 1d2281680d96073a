// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"github.com/go-playground/validator/v10"
)

// WorkloadRequest is the body of POST /workload.
type WorkloadRequest struct {
	Kind string `json:"kind" validate:"required,oneof=cpu io CPU IO"`
}

func (r *WorkloadRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// WorkloadResponse is returned by POST /workload.
type WorkloadResponse struct {
	BatchID string `json:"batch_id"`
	Kind    string `json:"kind"`
	Workers int    `json:"workers"`
	Tasks   int    `json:"tasks"`
	Message string `json:"message"`
}
