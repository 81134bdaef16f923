// Package hclmodel loads models written in HCL.
//
// A model file declares random variables, deterministic transforms,
// constraint functions, observed data and estimation settings:
//
//	settings {
//	  init_policy   = "zero"
//	  skip_variance = false
//	}
//
//	data {
//	  file = "regression.csv"
//	}
//
//	parameter "beta" {
//	  distribution = normal(1, 1)
//	}
//
//	parameter "unconstrained_alpha" {
//	  distribution = log_transformed(chi2(4))
//	}
//
//	transform "alpha" {
//	  value = exp(unconstrained_alpha)
//	}
//
//	observed "y" {
//	  distribution = normal(add(alpha, mul(beta, data.x)), 1)
//	}
//
// A node depends on exactly the other nodes its expression references;
// `data.<column>` reads an observed data column. Observed nodes take their
// values from the data column of the same name. Values are numbers or lists
// of numbers, and the vectorized functions (add, sub, mul, div, exp, log,
// sum) broadcast single elements against lists.
package hclmodel
