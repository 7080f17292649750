//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package toolbox

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
)

// ValidateArgs checks a call's arguments against a tool's JSON-schema
// parameter block. An empty schema admits anything. Both schema and
// args round-trip through JSON first so values decoded from YAML or
// built in code validate the same as wire input.
func ValidateArgs(schema map[string]any, args map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	schemaDoc, err := toJSONValue(schema)
	if err != nil {
		return errs.Wrap(errs.KindValidation, err, "encode parameter schema")
	}
	instance, err := toJSONValue(args)
	if err != nil {
		return errs.Wrap(errs.KindValidation, err, "encode arguments")
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", schemaDoc); err != nil {
		return errs.Wrap(errs.KindValidation, err, "add parameter schema")
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return errs.Wrap(errs.KindValidation, err, "compile parameter schema")
	}
	if err := compiled.Validate(instance); err != nil {
		return errs.Wrap(errs.KindValidation, err, "arguments do not match parameter schema")
	}
	return nil
}

func toJSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
