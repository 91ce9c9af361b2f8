// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeBridgeDescriptorInvalid     Code = "bridge.descriptor.decode.invalid_format"
	CodeBridgeBatchInvalid          Code = "bridge.batch.decode.invalid_format"
	CodeBridgeTransitionInvalid     Code = "bridge.lifecycle.transition.invalid"
	CodeBridgeCallbackConflict      Code = "bridge.callback.conflict"
	CodeBridgeScriptFailure         Code = "bridge.script.execute.failure"
	CodeBridgeScriptTimeout         Code = "bridge.script.execute.timeout"
	CodeBridgeSurfaceClosed         Code = "bridge.surface.closed"
	CodeBridgeSurfaceNotConnected   Code = "bridge.surface.not_connected"
	CodeBridgeSettingsInvalid       Code = "bridge.settings.encode.invalid_value"
	CodeBridgeMessageEncodeInvalid  Code = "bridge.message.encode.invalid_value"
	CodeBridgeArgumentDecodeInvalid Code = "bridge.argument.decode.invalid_format"
	CodeBridgeURLInvalid            Code = "bridge.url.parse.invalid_format"
	CodeBridgeTransportFailure      Code = "bridge.transport.failure"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodePluginManifestValidateInvalid Code = "plugin.manifest.validate.invalid"
	CodePluginRuntimeStartFailure     Code = "plugin.runtime.start.failure"
	CodePluginRuntimeCallFailure      Code = "plugin.runtime.call.failure"
	CodePluginDiscoveryFailure        Code = "plugin.discovery.failure"
	CodePluginNotFound                Code = "plugin.not_found"
	CodePluginArgumentInvalid         Code = "plugin.argument.invalid"
	CodePluginTransitionInvalid       Code = "plugin.lifecycle.transition.invalid"

	CodeStorageOpenFailure     Code = "storage.open.failure"
	CodeStorageQueryFailure    Code = "storage.query.failure"
	CodeStorageKeyNotFound     Code = "storage.key.not_found"
	CodeKeychainInvalidInput   Code = "keychain.invalid_input"
	CodeKeychainNotFound       Code = "keychain.secret.not_found"
	CodeKeychainBackendFailure Code = "keychain.backend.failure"
	CodeClipboardUnsupported   Code = "clipboard.backend.unsupported"
	CodeClipboardFailure       Code = "clipboard.backend.failure"
	CodeSysinfoFailure         Code = "sysinfo.probe.failure"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerEntityNotFound  Code = "server.entity.not_found"
	CodeServerConfigInvalid   Code = "server.config.invalid"
	CodeServerStartFailure    Code = "server.start.failure"
	CodeServerShutdownFailure Code = "server.shutdown.failure"

	CodeRunloopClosed    Code = "runloop.closed"
	CodeRunloopTaskPanic Code = "runloop.task.panic"

	CodeTelemetrySetupFailure Code = "telemetry.setup.failure"

	CodeCLISetupFailure Code = "cli.setup.failure"
	CodeCLIInputInvalid Code = "cli.input.invalid"
	CodeCLIRunTimeout   Code = "cli.run.timeout"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// FieldValue creates a structured error field.
func FieldValue(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Field is kept as the primary helper for terse callsites.
func Field(key string, value any) Attr {
	return FieldValue(key, value)
}

func FieldPlugin(value string) Attr {
	return Field("plugin", value)
}

func FieldAction(value string) Attr {
	return Field("action", value)
}

func FieldCallbackID(value string) Attr {
	return Field("callback_id", value)
}

func FieldPageID(value string) Attr {
	return Field("page_id", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsConflict(err error) bool {
	return reason(CodeOf(err)) == "conflict"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

func IsUnsupported(err error) bool {
	return reason(CodeOf(err)) == "unsupported"
}

func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsTimeout(err):
		return http.StatusGatewayTimeout
	case IsUnsupported(err):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
