/*
 * errors.go, part of godock.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 * goDock is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

package dock

import "fmt"

//Error is the error type for the dock package. It carries the name of the
//input file that caused the problem (or an empty string if none) and a
//"decoration" trace of the functions the error has passed through.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.filename == "" {
		return fmt.Sprintf("godock error: %s", err.message)
	}
	return fmt.Sprintf("godock file %s error: %s", err.filename, err.message)
}

//Decorate will add the dec string to the decoration slice of strings of the
//error, and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	err.deco = append(err.deco, dec)
	return err.deco
}

//Critical returns whether the error is critical or can be ignored.
func (err Error) Critical() bool { return err.critical }

//FileName returns the name of the offending input file, if any.
func (err Error) FileName() string { return err.filename }

type errorInt interface {
	Error() string
	Critical() bool
	Decorate(string) []string
}

//errDecorate asserts that err implements the decoratable error interface and
//decorates it with the caller's name before returning it. Calling it with any
//other error type is a programming error and panics.
func errDecorate(err error, caller string) error {
	//Decorate has a value receiver, so an Error has to take back the
	//decorated slice itself.
	if e, ok := err.(Error); ok {
		e.deco = e.Decorate(caller)
		return e
	}
	err2 := err.(errorInt)
	err2.Decorate(caller)
	return err2
}

//PanicMsg is a message used for panics. It does satisfy the error interface,
//but for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrXSOutOfRange    = PanicMsg("godock: xs type out of range")
	ErrBadConformation = PanicMsg("godock: conformation vector has the wrong length")
)
