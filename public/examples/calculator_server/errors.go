package main

import "errors"

var errDivideByZero = errors.New("calculator: division by zero")
