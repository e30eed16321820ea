/*
Copyright The CloudNativePG Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package autoresize contains the decision engine that scales the allocated
// storage and the provisioned IOPS of a managed database instance, and the
// pipeline running it once per scheduled invocation. Each invocation reads
// the policy limits, the averaged telemetry and the live configuration,
// proposes at most one step per dimension and submits every proposed change
// in a single modification request.
package autoresize
