package lensed

import "github.com/gogpu/lensed/gpucore"

// Finalize returns chi-square per degree of freedom of a dump: the sum of
// the chi-square channel over unmasked pixels divided by the number of
// unmasked pixels less ndim.
func Finalize(dump []gpucore.Float4, data *DataImage, ndim int) (float64, error) {
	dof := data.Size() - data.NMask - ndim
	if dof <= 0 {
		return 0, &DegenerateFitError{Pixels: data.Size(), Masked: data.NMask, NDim: ndim}
	}
	var chi2 float64
	for i, rec := range dump {
		if !data.Mask[i] {
			chi2 += float64(rec.S[3])
		}
	}
	return chi2 / float64(dof), nil
}
