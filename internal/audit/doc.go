// Package audit 提供审核判定的审计落库能力。
// This package is internal and should not be imported by external projects.
package audit
