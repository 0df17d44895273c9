// Package core implements the bulk question import pipeline.
//
// It turns an uploaded spreadsheet or CSV file into validated
// [question.ParsedQuestion] records, independent of any transport: the web
// handlers and the CLI both drive it through [Service].
//
// # Pipeline
//
// Every import runs the same forward-only stages:
//
//  1. [NewSource] reads the container (xlsx via excelize, or delimited
//     text with encoding and delimiter detection) into a lazy [RowSource].
//  2. [NormalizeRow] trims values and drops rows that are entirely blank.
//  3. [MapRow] validates the required columns, resolves the enumerations,
//     parses each optional column and then applies the rules of the
//     question type.
//  4. [ProcessRows] collects accepted questions and per-row rejections
//     without stopping at the first bad row.
//
// A batch is all-or-nothing: [ImportBatchResult.Err] reports a
// [*BatchRejectedError] listing every rejected line whenever one row fails,
// and the service never hands such a batch to the store.
//
// # Templates
//
// [SpreadsheetTemplate] and [CSVTemplate] emit example files that use the
// same column contract; feeding them back through the pipeline imports one
// question per type.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError].
// Codes are grouped by category:
//
//   - VAL001-VAL004: Row validation, empty batches and malformed fields
//   - FILE001-FILE007: Upload checks and unreadable sources
//   - DB001-DB008: Question store failures and unknown imports
//   - UPL002-UPL005: Concurrency limits, cancellation and timeouts
//   - RATE001: Per-client rate limiting
package core
