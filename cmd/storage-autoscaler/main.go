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

/*
The storage-autoscaler command scales the allocated storage and the
provisioned IOPS of an RDS instance from its CloudWatch telemetry
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudnative-pg/storage-autoscaler/internal/cmd/autoscaler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := autoscaler.NewCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
