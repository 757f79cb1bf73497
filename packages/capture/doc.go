// Package capture decodes response bodies and extracts values from them.
//
// Capture sources:
//   - body paths in gjson syntax (items.0.id, items[0].id, body.items.#)
//   - header.<Name> for response headers
//   - status and duration
package capture
