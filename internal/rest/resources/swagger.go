// Package resources sqlmagic REST API
//
// This is the REST API used to run SQL shortcuts remotely.
//
//	Version: 1.0
//	License: Apache-2.0 https://www.apache.org/licenses/LICENSE-2.0
//
// swagger:meta
package resources
