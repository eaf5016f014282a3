//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"standardizer/pkg/engine"
	"standardizer/pkg/form"
	"standardizer/pkg/parser"
	"standardizer/pkg/report"
	"standardizer/pkg/schema"
)

// NOTE: The page loads one WASM instance and keeps a single session in it.
// Every exported function returns a JSON string; failures carry an "error" key.

var session = engine.NewSession(engine.Options{})

func errorJSON(msg string) string {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return string(out)
}

func resultJSON(v interface{}) string {
	out, err := json.Marshal(v)
	if err != nil {
		return errorJSON(err.Error())
	}
	return string(out)
}

// parse handles the standardizerParse JS function call.
// args[0] = Uint8Array (file bytes)
// args[1] = string (file name, used for format dispatch)
// args[2] = number (header rows to skip, CSV only)
// Returns: the session snapshot JSON.
func parse(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorJSON("standardizerParse requires 3 arguments: Uint8Array, fileName and skipRows")
	}

	data := make([]byte, args[0].Get("length").Int())
	js.CopyBytesToGo(data, args[0])

	if err := session.Upload(args[1].String(), data, args[2].Int()); err != nil {
		return errorJSON(err.Error())
	}
	return resultJSON(session.Snapshot())
}

// preview handles the standardizerPreview JS function call.
// args[0] = string (form submission JSON)
// args[1] = bool (optional, materialize the standardized rows)
// Returns: the page model with both preview tables.
func preview(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorJSON("standardizerPreview requires 1 argument: submissionJSON")
	}

	var sub form.Submission
	if err := json.Unmarshal([]byte(args[0].String()), &sub); err != nil {
		return errorJSON("invalid submission: " + err.Error())
	}
	if err := session.Apply(sub); err != nil {
		return errorJSON(err.Error())
	}

	materialize := len(args) > 1 && args[1].Truthy()
	page := report.BuildPage(session.Snapshot(), report.PageOptions{
		Materialize: materialize,
		Extensions:  parser.DefaultRegistry().Extensions(),
	})
	return resultJSON(page)
}

// schemaInfo handles the standardizerSchema JS function call.
// Returns: the standardized columns and the fixed form lists.
func schemaInfo(this js.Value, args []js.Value) interface{} {
	return resultJSON(map[string]interface{}{
		"columns":        schema.Columns,
		"plotFields":     schema.PlotFields,
		"certifications": schema.Certifications,
		"origins":        schema.Origins,
	})
}

func main() {
	js.Global().Set("standardizerParse", js.FuncOf(parse))
	js.Global().Set("standardizerPreview", js.FuncOf(preview))
	js.Global().Set("standardizerSchema", js.FuncOf(schemaInfo))

	// Block forever; the WASM module stays alive.
	select {}
}
