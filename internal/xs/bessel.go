package xs

import "github.com/chewxy/math32"

// besselI1 returns the modified Bessel function I1(x) for x>=0, using the
// standard rational/polynomial approximations (Abramowitz & Stegun 9.8.3,
// 9.8.4). Needed only as a building block for besselK1, which the impulse-
// approximation fallback of Theta uses for very small-angle, large-impact-
// parameter collisions.
func besselI1(x float32) float32 {
	ax := math32.Abs(x)
	var ans float32
	if ax < 3.75 {
		y := (x / 3.75) * (x / 3.75)
		ans = ax * (0.5 + y*(0.87890594+y*(0.51498869+y*(0.15084934+y*(0.2658733e-1+y*(0.301532e-2+y*0.32411e-4))))))
	} else {
		y := float32(3.75) / ax
		p := float32(0.2282967e-1) + y*(-0.2895312e-1+y*(0.1787654e-1-y*0.420059e-2))
		p = 0.39894228 + y*(-0.3988024e-1+y*(-0.362018e-2+y*(0.163801e-2+y*(-0.1031555e-1+y*p))))
		ans = p * (math32.Exp(ax) / math32.Sqrt(ax))
	}
	if x < 0 {
		ans = -ans
	}
	return ans
}

// besselK1 returns the modified Bessel function K1(x) for x>0.
func besselK1(x float32) float32 {
	if x <= 2 {
		y := x * x / 4
		p := float32(0.15443144) + y*(-0.67278579+y*(-0.18156897+y*(-0.1919402e-1+y*(-0.110404e-2+y*(-0.4686e-4)))))
		return math32.Log(x/2)*besselI1(x) + (1/x)*(1+y*p)
	}
	y := float32(2) / x
	p := float32(1.25331414) + y*(0.23498619+y*(-0.3655620e-1+y*(0.1504268e-1+y*(-0.780353e-2+y*(0.325614e-2+y*(-0.68245e-3))))))
	return (math32.Exp(-x) / math32.Sqrt(x)) * p
}
