package response

import "encoding/base64"

// encodeAudio converts raw PCM16 bytes into the base64 form the
// response.audio.delta wire event carries.
func encodeAudio(pcm []byte) string {
	return base64.StdEncoding.EncodeToString(pcm)
}
