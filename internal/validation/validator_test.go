package validation_test

import (
	"errors"
	"testing"

	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/validation"
	. "github.com/smartystreets/goconvey/convey"
)

type sample struct {
	Multiplier float64 `validate:"gt=0"`
	Start      string  `validate:"required,clock"`
}

type backend struct {
	Kind string `validate:"oneof=memory redis"`
	Addr string `validate:"required_if=Kind redis"`
}

func TestStruct(t *testing.T) {
	Convey("Given the shared validator", t, func() {
		Convey("When the struct is valid", func() {
			err := validation.Struct(&sample{Multiplier: 1.5, Start: "18:30"})

			Convey("Then no error is returned", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When a multiplier is not positive", func() {
			err := validation.Struct(&sample{Multiplier: 0, Start: "9:05"})

			Convey("Then a model validation error names the field", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "invalid multiplier: must be greater than 0")
			})
		})

		Convey("When the clock is malformed", func() {
			err := validation.Struct(&sample{Multiplier: 1, Start: "25:00"})

			Convey("Then the clock rule fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "HH:MM")
			})
		})
	})

	Convey("Given conditional rules", t, func() {
		Convey("When a dependent field is missing", func() {
			err := validation.Struct(&backend{Kind: "redis"})

			Convey("Then the condition is spelled out", func() {
				So(err.Error(), ShouldEqual, "invalid addr: is required when kind is redis")
			})
		})

		Convey("When the value is outside the allowed set", func() {
			err := validation.Struct(&backend{Kind: "disk"})

			Convey("Then the allowed values are listed", func() {
				So(err.Error(), ShouldEqual, "invalid kind: must be one of: memory redis")
			})
		})

		Convey("When the condition does not hold", func() {
			So(validation.Struct(&backend{Kind: "memory"}), ShouldBeNil)
		})
	})

	Convey("Given raw clock strings", t, func() {
		So(validation.IsClock("07:00"), ShouldBeTrue)
		So(validation.IsClock("23:59"), ShouldBeTrue)
		So(validation.IsClock("24:00"), ShouldBeFalse)
		So(validation.IsClock("7pm"), ShouldBeFalse)
	})
}
