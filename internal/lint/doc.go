// Package lint runs the validation rule set over posts discovered by the
// posts loader, records outcomes in the ledger and builds run reports.
package lint
