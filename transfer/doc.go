// Package transfer encodes vault transfer bundles for media with and without
// a capacity limit.
//
// A bundle is serialized as compact JSON and base64 encoded. Clipboard
// transfers carry that text as is. Visual codes carry it split into chunks of
// the form
//
//	DVX1:<index>:<total>:<slice>
//
// which may be shown in any order and any number of times. An Assembler
// collects chunks by index and reassembles the text once every index in
// 0..total-1 has been seen. Nothing in this package needs or sees a password;
// a decoded bundle still has to be imported with one.
package transfer
