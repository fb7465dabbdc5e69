// Copyright (C) 2023 Martin Voggel
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package reg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Sentinel for a terminal per-plane registration failure. Callers apply the
// copy-reference fallback at the failing granularity; no retries.
var ErrRegistrationFailed = errors.New("registration failed")

// Default iteration budget and convergence tolerance on the correlation improvement
const (
	DefaultIterations = 10
	DefaultEpsilon    = 1e-10
)

const numParams = 8 // homography degrees of freedom, bottom-right entry fixed at 1

// Registers the moving plane mov against the reference plane ref via the
// enhanced correlation coefficient (ECC) criterion, refined iteratively with
// Gauss-Newton steps from an identity start. Both planes are single-channel,
// row-major and of identical shape. Deterministic: no randomness anywhere.
//
// On success returns the homography mapping moving-plane coordinates into
// reference coordinates, plus the achieved correlation. Numerical breakdowns
// (zero-variance plane, degenerate Hessian, non-positive ECC denominator,
// NaN step) return an error wrapping ErrRegistrationFailed. Exhausting the
// iteration budget without meeting eps is not an error: the last estimate wins.
func Register(ref, mov []float32, width int32, numIters int, eps float64) (trans Transform3, rho float32, err error) {
	if len(ref)!=len(mov) {
		return Transform3{}, 0, fmt.Errorf("reference plane has %d samples, moving plane %d", len(ref), len(mov))
	}
	height:=int32(len(ref))/width

	e:=newEccState(ref, mov, width, height)
	warp:=IdentityTransform3() // sampling map from reference into moving coordinates

	prevRho:=-2.0
	for iter:=0; iter<numIters; iter++ {
		curRho, err:=e.iterate(&warp)
		if err!=nil { return Transform3{}, 0, err }
		rho=float32(curRho)
		if d:=curRho-prevRho; d<eps && -d<eps { break } // correlation no longer improving
		prevRho=curRho
	}

	// the estimated motion is the inverse of the sampling map
	trans, invErr:=warp.Invert()
	if invErr!=nil {
		return Transform3{}, 0, fmt.Errorf("%w: %s", ErrRegistrationFailed, invErr.Error())
	}
	return trans, rho, nil
}

// Scratch state for the ECC iteration, allocated once per registration
type eccState struct {
	ref, mov  []float32
	gradX     []float64   // x gradient of the moving plane, central differences
	gradY     []float64   // y gradient of the moving plane
	width     int32
	height    int32

	warped    []float64   // moving plane resampled at the current warp
	warpGradX []float64   // moving plane gradients resampled at the current warp
	warpGradY []float64
	valid     []bool      // warp target inside the moving plane
}

func newEccState(ref, mov []float32, width, height int32) *eccState {
	n:=int(width)*int(height)
	e:=&eccState{
		ref: ref, mov: mov, width: width, height: height,
		gradX:     make([]float64, n),
		gradY:     make([]float64, n),
		warped:    make([]float64, n),
		warpGradX: make([]float64, n),
		warpGradY: make([]float64, n),
		valid:     make([]bool, n),
	}
	// central difference gradients, one-sided at the borders
	for y:=int32(0); y<height; y++ {
		for x:=int32(0); x<width; x++ {
			xl, xh:=x-1, x+1
			if xl<0 { xl=0 }
			if xh>=width { xh=width-1 }
			yl, yh:=y-1, y+1
			if yl<0 { yl=0 }
			if yh>=height { yh=height-1 }
			i:=y*width+x
			e.gradX[i]=float64(mov[y*width+xh]-mov[y*width+xl]) / float64(xh-xl)
			e.gradY[i]=float64(mov[yh*width+x]-mov[yl*width+x]) / float64(yh-yl)
		}
	}
	return e
}

// Runs one ECC refinement step, updating the warp in place.
// Returns the correlation coefficient before the update.
func (e *eccState) iterate(warp *Transform3) (rho float64, err error) {
	width, height:=e.width, e.height

	// resample the moving plane and its gradients at the current warp
	numValid:=0
	sumT, sumW:=0.0, 0.0
	for y:=int32(0); y<height; y++ {
		for x:=int32(0); x<width; x++ {
			i:=y*width+x
			p:=warp.Apply(Point2D{float32(x), float32(y)})
			xl, yl:=math.Floor(float64(p.X)), math.Floor(float64(p.Y))
			if xl<0 || int32(xl)+1>=width || yl<0 || int32(yl)+1>=height {
				e.valid[i]=false
				continue
			}
			e.valid[i]=true
			xr, yr:=float64(p.X)-xl, float64(p.Y)-yl
			base:=int32(yl)*width+int32(xl)
			e.warped[i]   =bilinearAt(e.mov, base, width, xr, yr)
			e.warpGradX[i]=bilinearAt64(e.gradX, base, width, xr, yr)
			e.warpGradY[i]=bilinearAt64(e.gradY, base, width, xr, yr)
			numValid++
			sumT+=float64(e.ref[i])
			sumW+=e.warped[i]
		}
	}
	if numValid<4*numParams {
		return 0, fmt.Errorf("%w: only %d pixels overlap after warping", ErrRegistrationFailed, numValid)
	}
	meanT, meanW:=sumT/float64(numValid), sumW/float64(numValid)

	// single pass accumulation of the correlation terms and normal equations
	var tt, ww, tw float64
	var hess [numParams][numParams]float64
	var gt, gw [numParams]float64
	var jac [numParams]float64
	for y:=int32(0); y<height; y++ {
		for x:=int32(0); x<width; x++ {
			i:=y*width+x
			if !e.valid[i] { continue }
			t:=float64(e.ref[i])-meanT
			w:=e.warped[i]-meanW
			tt+=t*t
			ww+=w*w
			tw+=t*w

			// steepest descent row: image gradient times warp jacobian
			p:=warp.Apply(Point2D{float32(x), float32(y)})
			den:=float64(warp.G)*float64(x) + float64(warp.H)*float64(y) + 1
			gx, gy:=e.warpGradX[i], e.warpGradY[i]
			fx, fy:=float64(x), float64(y)
			u, v:=float64(p.X), float64(p.Y)
			jac[0]=gx*fx/den
			jac[1]=gx*fy/den
			jac[2]=gx/den
			jac[3]=gy*fx/den
			jac[4]=gy*fy/den
			jac[5]=gy/den
			jac[6]=-(gx*u+gy*v)*fx/den
			jac[7]=-(gx*u+gy*v)*fy/den
			for r:=0; r<numParams; r++ {
				gt[r]+=jac[r]*t
				gw[r]+=jac[r]*w
				for c:=r; c<numParams; c++ {
					hess[r][c]+=jac[r]*jac[c]
				}
			}
		}
	}

	if tt<1e-10 || ww<1e-10 {
		return 0, fmt.Errorf("%w: plane has no intensity variation", ErrRegistrationFailed)
	}
	rho=tw/math.Sqrt(tt*ww)
	if math.IsNaN(rho) {
		return 0, fmt.Errorf("%w: correlation is NaN", ErrRegistrationFailed)
	}

	// solve the 8x8 normal equations
	sym:=mat.NewSymDense(numParams, nil)
	for r:=0; r<numParams; r++ {
		for c:=r; c<numParams; c++ {
			sym.SetSym(r, c, hess[r][c])
		}
	}
	var chol mat.Cholesky
	if ok:=chol.Factorize(sym); !ok {
		return 0, fmt.Errorf("%w: degenerate hessian", ErrRegistrationFailed)
	}
	gtVec:=mat.NewVecDense(numParams, gt[:])
	gwVec:=mat.NewVecDense(numParams, gw[:])
	hinvGw:=mat.NewVecDense(numParams, nil)
	if err:=chol.SolveVecTo(hinvGw, gwVec); err!=nil {
		return 0, fmt.Errorf("%w: %s", ErrRegistrationFailed, err.Error())
	}

	// ECC update per Evangelidis & Psarakis: scale the template so the
	// correlation, not the plain squared error, is maximized
	num:=ww - mat.Dot(gwVec, hinvGw)
	den2:=tw - mat.Dot(gtVec, hinvGw)
	if den2<=0 {
		return 0, fmt.Errorf("%w: non-positive correlation denominator, planes may be uncorrelated", ErrRegistrationFailed)
	}
	lambda:=num/den2

	errVec:=mat.NewVecDense(numParams, nil)
	errVec.AddScaledVec(gwVec, -lambda, gtVec) // gw - lambda*gt
	delta:=mat.NewVecDense(numParams, nil)
	if err:=chol.SolveVecTo(delta, errVec); err!=nil {
		return 0, fmt.Errorf("%w: %s", ErrRegistrationFailed, err.Error())
	}

	// additive parameter update: dp = Hinv * (lambda*gt - gw)
	dp:=[numParams]float64{}
	for r:=0; r<numParams; r++ {
		dp[r]=-delta.AtVec(r)
		if math.IsNaN(dp[r]) || math.IsInf(dp[r], 0) {
			return 0, fmt.Errorf("%w: non-finite update step", ErrRegistrationFailed)
		}
	}
	warp.A+=float32(dp[0]); warp.B+=float32(dp[1]); warp.C+=float32(dp[2])
	warp.D+=float32(dp[3]); warp.E+=float32(dp[4]); warp.F+=float32(dp[5])
	warp.G+=float32(dp[6]); warp.H+=float32(dp[7])
	return rho, nil
}

func bilinearAt(d []float32, base, width int32, xr, yr float64) float64 {
	vyl:=float64(d[base])*(1-xr)       + float64(d[base+1])*xr
	vyh:=float64(d[base+width])*(1-xr) + float64(d[base+width+1])*xr
	return vyl*(1-yr) + vyh*yr
}

func bilinearAt64(d []float64, base, width int32, xr, yr float64) float64 {
	vyl:=d[base]*(1-xr)       + d[base+1]*xr
	vyh:=d[base+width]*(1-xr) + d[base+width+1]*xr
	return vyl*(1-yr) + vyh*yr
}
