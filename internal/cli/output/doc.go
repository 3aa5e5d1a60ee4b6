// Package output renders httpkom-cli results as a table, JSON or YAML.
//
// Tables are built from struct fields: the json tag names the column and
// a table:"wide" tag hides the column unless wide output was requested.
package output
