// Package audio converts between the wire formats used by the speech and
// recording paths and in-memory audio buffers, and defines the device
// contracts (output context, voice, microphone) the controllers drive.
//
// Speech arrives as base64 encoded little-endian 16-bit signed PCM, mono, at
// SpeechSampleRate. Recordings leave as opaque blobs tagged with the mime type
// the capturing device reported.
package audio
