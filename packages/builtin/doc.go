// Package builtin provides the helper functions seeded into every run
// context.
//
// Available functions include:
//   - $makeAlphaId(n) / makeAlphaId(n): random alphabetic identifier
//   - uuid(): random UUID v4
//   - timestamp(), timestampMs(), isodate()
//   - randomInt(min, max), randomString(n), randomEmail()
//   - base64(s), base64Decode(s), md5(s), sha256(s), urlEncode(s), urlDecode(s)
//
// The sprig text function map is merged in for names not defined here.
// Functions are called from expressions, e.g. ${uuid()}.
package builtin
