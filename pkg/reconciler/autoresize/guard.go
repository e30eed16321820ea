/*
Copyright © contributors to CloudNativePG, established as
CloudNativePG a Series of LF Projects, LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.

SPDX-License-Identifier: Apache-2.0
*/

package autoresize

import (
	"sync"

	"go.uber.org/atomic"
)

// RunGuard prevents overlapping invocations for the same instance within
// one process. Serialization across processes is left to the provisioner.
type RunGuard struct {
	mu      sync.Mutex
	running map[string]*atomic.Bool
}

// NewRunGuard creates a new RunGuard instance
func NewRunGuard() *RunGuard {
	return &RunGuard{
		running: make(map[string]*atomic.Bool),
	}
}

func (g *RunGuard) flag(instanceID string) *atomic.Bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	flag, ok := g.running[instanceID]
	if !ok {
		flag = atomic.NewBool(false)
		g.running[instanceID] = flag
	}
	return flag
}

// TryAcquire marks an invocation as running for the instance.
// Returns false if one is already running.
func (g *RunGuard) TryAcquire(instanceID string) bool {
	return g.flag(instanceID).CompareAndSwap(false, true)
}

// Release marks the invocation for the instance as completed
func (g *RunGuard) Release(instanceID string) {
	g.flag(instanceID).Store(false)
}

// IsRunning reports whether an invocation is running for the instance
func (g *RunGuard) IsRunning(instanceID string) bool {
	return g.flag(instanceID).Load()
}
