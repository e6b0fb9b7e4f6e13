package constant

// AsciiArtLogo is the application's banner shown above the root command help.
const AsciiArtLogo = `
   __ ___   _____ _   _ _ __   ___
  / _' \ \ / / __| | | | '_ \ / __|
 | (_| |\ V /\__ \ |_| | | | | (__
  \__,_| \_/ |___/\__, |_| |_|\___|
                  |___/`
