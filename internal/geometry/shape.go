package geometry

import (
	"fmt"
	"strings"
)

// Shape selects how the eight waymarks are laid out around the center.
type Shape int

const (
	Circle Shape = iota
	Square
	Diamond
	Star
)

var shapeNames = [...]string{"Circle", "Square", "Diamond", "Star"}

// Shapes lists every shape in configuration order.
var Shapes = []Shape{Circle, Square, Diamond, Star}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return shapeNames[s]
}

// ParseShape accepts a shape name (case-insensitive) or its numeric value.
func ParseShape(v string) (Shape, error) {
	v = strings.TrimSpace(v)
	for i, name := range shapeNames {
		if strings.EqualFold(v, name) || v == fmt.Sprint(i) {
			return Shape(i), nil
		}
	}
	return Circle, fmt.Errorf("unknown shape: %q", v)
}

// Order selects which marker slot each position around the shape receives.
type Order int

const (
	// Proper interleaves letters and numbers: A 1 B 2 C 3 D 4.
	Proper Order = iota
	// Partyfinder is the common party finder layout: A 2 B 3 C 4 D 1.
	Partyfinder
	// LetterNumber places all letters then all numbers: A B C D 1 2 3 4.
	LetterNumber
)

var orderNames = [...]string{"Proper", "Partyfinder", "LetterNumber"}

// Orders lists every order in configuration order.
var Orders = []Order{Proper, Partyfinder, LetterNumber}

func (o Order) String() string {
	if o < 0 || int(o) >= len(orderNames) {
		return fmt.Sprintf("Order(%d)", int(o))
	}
	return orderNames[o]
}

// ParseOrder accepts an order name (case-insensitive) or its numeric value.
func ParseOrder(v string) (Order, error) {
	v = strings.TrimSpace(v)
	for i, name := range orderNames {
		if strings.EqualFold(v, name) || v == fmt.Sprint(i) {
			return Order(i), nil
		}
	}
	return Proper, fmt.Errorf("unknown order: %q", v)
}
