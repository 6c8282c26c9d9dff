package engine

// Version is shown in the watermark line of the info display.
const Version = "0.1.0"
