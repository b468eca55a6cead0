// Package client provides wrappers for the external clients rollctl talks to.
//
//   - docker: Docker daemon client construction and availability checks
//   - netretry: Retry classification for transient network errors
package client
