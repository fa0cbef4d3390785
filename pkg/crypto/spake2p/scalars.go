package spake2p

import (
	"io"
	"math/big"

	"github.com/backkem/dkpair/pkg/crypto"
)

// DeriveW0W1 stretches password with scrypt into 80 bytes z0 ‖ z1 and
// reduces each half to a non-zero scalar: wi = (zi mod (n-1)) + 1.
func DeriveW0W1(password []byte, params crypto.ScryptParams) (w0, w1 *big.Int, err error) {
	z, err := crypto.Scrypt(password, params, 2*wsSizeBytes)
	if err != nil {
		return nil, nil, &CryptoError{Op: "derive w0/w1", Err: err}
	}
	defer clear(z)

	return reduceScalar(z[:wsSizeBytes]), reduceScalar(z[wsSizeBytes:]), nil
}

func reduceScalar(z []byte) *big.Int {
	nMinus1 := new(big.Int).Sub(order, big.NewInt(1))
	w := new(big.Int).SetBytes(z)
	w.Mod(w, nMinus1)
	return w.Add(w, big.NewInt(1))
}

// randomScalar reads 256 bits from r and reduces them mod n.
func randomScalar(r io.Reader) (*big.Int, error) {
	b := make([]byte, ScalarSizeBytes)
	defer clear(b)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, &CryptoError{Op: "random scalar", Err: err}
	}
	k := new(big.Int).SetBytes(b)
	return k.Mod(k, order), nil
}

// DeviceCreatePublicShare picks x and returns it with X = x*G + w0*M.
func DeviceCreatePublicShare(r io.Reader, w0 *big.Int) (x *big.Int, X []byte, err error) {
	x, err = randomScalar(r)
	if err != nil {
		return nil, nil, err
	}
	return x, computeShare(x, w0, pointM).Bytes(), nil
}

// VehicleCreatePublicShare picks y and returns it with Y = y*G + w0*N.
func VehicleCreatePublicShare(r io.Reader, w0 *big.Int) (y *big.Int, Y []byte, err error) {
	y, err = randomScalar(r)
	if err != nil {
		return nil, nil, err
	}
	return y, computeShare(y, w0, pointN).Bytes(), nil
}

// DeviceSharedSecrets computes Z = x*(Y - w0*N) and V = w1*(Y - w0*N).
func DeviceSharedSecrets(x, w0, w1 *big.Int, Y []byte) (Z, V []byte, err error) {
	pY, err := decodePoint(Y)
	if err != nil {
		return nil, nil, &CryptoError{Op: "decode Y", Err: err}
	}
	t := pointSubMult(pY, pointN, w0)
	return scalarMult(t, x).Bytes(), scalarMult(t, w1).Bytes(), nil
}

// VehicleSharedSecrets computes Z = y*(X - w0*M) and V = y*(w1*G).
func VehicleSharedSecrets(y, w0, w1 *big.Int, X []byte) (Z, V []byte, err error) {
	pX, err := decodePoint(X)
	if err != nil {
		return nil, nil, &CryptoError{Op: "decode X", Err: err}
	}
	t := pointSubMult(pX, pointM, w0)
	L := scalarBaseMult(w1)
	return scalarMult(t, y).Bytes(), scalarMult(L, y).Bytes(), nil
}
