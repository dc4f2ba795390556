package materials

import "crypto/rand"

const (
	idPrefix  = "VM-"
	idCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idLength  = 5
)

// NewMaterialID mints a catalog identifier in the VM-XXXXX format the
// site's printed labels already use.
func NewMaterialID() string {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	out := make([]byte, idLength)
	for i, b := range buf {
		out[i] = idCharset[int(b)%len(idCharset)]
	}
	return idPrefix + string(out)
}
